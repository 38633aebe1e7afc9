package main

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// confirm asks a yes/no question. Declining or interrupting the prompt
// reports false without an error.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
