package main

import "github.com/arogya-ai/chatview/cmd"

func main() {
	cmd.Execute()
}
