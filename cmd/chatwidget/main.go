// Command chatwidget is a terminal chat widget for a chatbot endpoint.
package main

import "github.com/diogo/chatwidget/internal/commands"

func main() {
	commands.Execute()
}
