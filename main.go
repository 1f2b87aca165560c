package main

import "github.com/KaramelBytes/covidstat-cli/cmd"

func main() {
	cmd.Execute()
}
