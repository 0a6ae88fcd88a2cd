package main

import "github.com/semantic-machines/v-storage/cmd"

func main() {
	cmd.Execute()
}
