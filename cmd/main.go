package main

import (
	"github.com/sabry-awad97/telepharma/internal/app"
	"github.com/sabry-awad97/telepharma/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
