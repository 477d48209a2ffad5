package main

import "github.com/super2brain/importd/cmd"

func main() {
	cmd.Execute()
}
