package main

import "photosweep/cmd"

func main() {
	cmd.Execute()
}
