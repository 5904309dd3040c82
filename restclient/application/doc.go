// Package application contém o caso de uso de admissão do serializador:
// adquirir o portão exclusivo e cumprir o intervalo mínimo antes de delegar.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.Admit(ctx) retorna (release, ok).
package application
