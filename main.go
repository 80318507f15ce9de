package main

import "github.com/xvierd/speaking-eye/cmd"

func main() {
	cmd.Execute()
}
