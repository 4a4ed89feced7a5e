package main

import "github.com/felixgeelhaar/studyplan/cmd/studyplan/cli"

func main() {
	cli.Execute()
}
