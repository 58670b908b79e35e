package auth

import (
	"github.com/alexedwards/argon2id"
)

// Parâmetros aplicados a toda senha de usuário do gabinete. Ficam
// embutidos no hash gerado, então podem mudar sem migrar a tabela.
var hashParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id da senha.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, hashParams)
}

// Verify compara a senha com um hash Argon2id, lendo os parâmetros do
// próprio hash.
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
