// Package application contém os casos de uso (regras de aplicação) para cota por
// cliente e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key, endpoint) retorna uma Decision
// (allow/deny + limit/remaining/reset + retry-after).
package application
