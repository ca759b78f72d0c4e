package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/teleop/cmd/cpeer-teleop/app"
)

func main() {
	app.NewApp().Run()
}
