package main

import "loadprobe/cmd"

func main() {
	cmd.Execute()
}
