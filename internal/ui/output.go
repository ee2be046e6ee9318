// Package ui prints colored terminal output for the CLI commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

// Header prints a banner with the given title.
func Header(title string) {
	line := strings.Repeat("=", headerWidth)
	color.Cyan(line)
	color.Cyan(center(title, headerWidth))
	color.Cyan(line)
}

// Step prints a numbered progress step.
func Step(current, total int, message string) {
	color.Blue("[%d/%d] %s", current, total, message)
}

// Success prints a success message.
func Success(message string) {
	color.Green("✓ %s", message)
}

// Info prints an informational message.
func Info(message string) {
	fmt.Println(message)
}

// Warning prints a warning message.
func Warning(message string) {
	color.Yellow("⚠ %s", message)
}

// Error prints an error message.
func Error(message string) {
	color.Red("✗ %s", message)
}

// BlueText returns the text colored blue.
func BlueText(text string) string {
	return color.BlueString(text)
}

// YellowText returns the text colored yellow.
func YellowText(text string) string {
	return color.YellowString(text)
}

// center left-pads the text toward the middle of the width. Text wider than
// the target is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}
