package main

import (
	"log"
	"os"

	"github.com/viant/mcpconsole/console"
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	if err := console.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
