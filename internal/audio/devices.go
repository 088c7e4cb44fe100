package audio

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

// Initialize starts PortAudio once per process. Later calls return the first
// result.
func Initialize() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// Terminate balances a successful Initialize.
func Terminate() {
	if initErr != nil {
		return
	}
	termOnce.Do(func() {
		_ = portaudio.Terminate()
	})
}

// Device describes a PortAudio device.
type Device struct {
	Name            string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	HostAPI         string
	IsDefaultInput  bool
	IsDefaultOutput bool
}

// ListDevices returns all devices across host APIs sorted by host and name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	defaultInput := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultInput = def.Index
	}

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:            d.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				HostAPI:         host.Name,
				IsDefaultInput:  d.Index == defaultInput,
				IsDefaultOutput: host.DefaultOutputDevice != nil && d.Index == host.DefaultOutputDevice.Index,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
	return devices, nil
}

// WriteInputs prints the input-capable devices and the automatic pick.
func WriteInputs(w io.Writer, devices []Device, auto *portaudio.DeviceInfo) {
	fmt.Fprintf(w, "\n=== Audio Input Devices ===\n\n")
	for _, dev := range devices {
		if dev.MaxInput == 0 {
			continue
		}
		marker := ""
		if dev.IsDefaultInput {
			marker = " (default)"
		}
		fmt.Fprintf(w, "- %s [%s]%s\n    inputs:%d outputs:%d sample:%.0f Hz\n",
			dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.MaxOutput, dev.DefaultSampleHz)
	}
	if auto != nil {
		fmt.Fprintf(w, "\nAuto-detected input: %s (%.0f Hz, %d channels)\n", auto.Name, auto.DefaultSampleRate, auto.MaxInputChannels)
	}
}
