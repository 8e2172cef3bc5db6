// debug-token выпускает токены операторов для отладочного API.
//
//	debug-token -new-secret
//	OVERWORLD_DEBUG_SECRET=... debug-token -operator ops -ttl 12h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annel0/overworld/internal/auth"
)

func main() {
	newSecret := flag.Bool("new-secret", false, "Generate a new base64 secret and exit")
	secret := flag.String("secret", os.Getenv("OVERWORLD_DEBUG_SECRET"), "Base64 signing secret")
	operator := flag.String("operator", "ops", "Operator name")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *newSecret {
		s, err := auth.GenerateSecureSecret()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println(s)
		return
	}

	signer, err := auth.NewSigner(*secret)
	if err != nil {
		log.Fatalf("❌ Некорректный секрет: %v", err)
	}
	token, err := signer.Issue(*operator, *ttl)
	if err != nil {
		log.Fatalf("❌ Не удалось выпустить токен: %v", err)
	}
	fmt.Println(token)
}
