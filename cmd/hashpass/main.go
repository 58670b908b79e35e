// hashpass gera um hash Argon2id pronto para a coluna password_hash de
// usuarios, para semear o primeiro admin direto no banco.
package main

import (
	"fmt"
	"os"

	"github.com/organizagabinete/gabinete/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: hashpass <senha>")
		fmt.Fprintln(os.Stderr, "imprime o hash Argon2id para INSERT em usuarios(password_hash)")
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao gerar hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
