package main

import "github.com/contre95/bandpass/src/cmd"

func main() {
	cmd.Execute()
}
