package main

import (
	"os"

	"github.com/GoADConsole/GoADConsole/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
