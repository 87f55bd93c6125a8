// Package domain define contratos e tipos de domínio do rate limit por janela fixa
// e do limite de concorrência da busca.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
