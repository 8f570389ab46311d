package main

import "github.com/jmfitness/studio-management/cmd"

func main() {
	cmd.Execute()
}
