package main

import (
	"github.com/labnotify/labnotify/internal/cmd"
)

func main() {
	cmd.Execute()
}
