// main.go
package main

import (
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/cmd"
)

func main() {
	cmd.Execute()
}
