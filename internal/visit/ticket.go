package visit

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// NewTicketCode gera o código apresentável do ticket no formato
// VISIT-<epoch millis>-<0..999>. A unicidade real fica a cargo da
// constraint do banco; em colisão o repositório gera outro código.
func NewTicketCode() string {
	millis := time.Now().UnixMilli()
	suffix := rand.Intn(1000)
	return strings.ToUpper(fmt.Sprintf("VISIT-%d-%d", millis, suffix))
}
