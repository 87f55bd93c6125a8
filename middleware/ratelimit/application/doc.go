// Package application contém os casos de uso do rate limit por janela fixa
// e do limite de concorrência das buscas.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Check(key, cfg) conta a request e retorna um domain.Result;
// SlotService.Reserve decide quanto a busca espera por vaga.
package application
