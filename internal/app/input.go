package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
	"github.com/guidoenr/habitateq/internal/mode"
)

// keyCommand maps a key press to a command.
func keyCommand(char rune, key keyboard.Key) (command, bool) {
	trigger := func(t mode.Trigger, arg int) (command, bool) {
		return command{kind: commandTrigger, trigger: t, arg: arg}, true
	}
	switch key {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return command{kind: commandQuit}, true
	case keyboard.KeySpace:
		return trigger(mode.ManualExplode, 0)
	case keyboard.KeyArrowUp:
		return trigger(mode.AdjustActivePathCount, 1)
	case keyboard.KeyArrowDown:
		return trigger(mode.AdjustActivePathCount, -1)
	case keyboard.KeyArrowRight:
		return trigger(mode.RotateActivePaths, 1)
	case keyboard.KeyArrowLeft:
		return trigger(mode.RotateActivePaths, -1)
	case keyboard.KeyTab:
		return trigger(mode.CycleTouchPreset, 0)
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		return trigger(mode.ResetTouchPreset, 0)
	case keyboard.KeyEnter:
		return command{kind: commandPause}, true
	}
	switch char {
	case 'q', 'Q':
		return command{kind: commandQuit}, true
	case 'k', 'K':
		return trigger(mode.ToggleKaleidoscope, 0)
	case 'n', 'N':
		return trigger(mode.ToggleNeon, 0)
	case '3':
		return trigger(mode.Toggle3D, 0)
	case 'v', 'V':
		return trigger(mode.ToggleVerticalFlow, 0)
	case 't', 'T':
		return trigger(mode.ToggleTunnel, 0)
	case 'p', 'P':
		return trigger(mode.CycleParticleMode, 0)
	case 'm', 'M':
		return trigger(mode.TogglePhysics, 0)
	case 'r', 'R':
		return trigger(mode.ResetPhysics, 0)
	case ' ':
		return trigger(mode.ManualExplode, 0)
	case '+', '=':
		return trigger(mode.AdjustSegmentCount, 1)
	case '-', '_':
		return trigger(mode.AdjustSegmentCount, -1)
	}
	return command{}, false
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			cmd, ok := keyCommand(char, key)
			if !ok {
				continue
			}
			if cmd.kind == commandQuit {
				select {
				case a.commands <- cmd:
				case <-ctx.Done():
				}
				return
			}
			_ = a.enqueue(cmd)
		}
	}()
}
