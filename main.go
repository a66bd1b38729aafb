package main

import "github.com/MeKo-Tech/terrasynth/internal/cmd"

func main() {
	cmd.Execute()
}
