package main

import (
	"github.com/plovdev/audioengine/cmd"
	"github.com/plovdev/audioengine/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
