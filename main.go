package main

import (
	"github.com/tanpawarit/autocheck-bot/cmd"
	_ "github.com/tanpawarit/autocheck-bot/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
