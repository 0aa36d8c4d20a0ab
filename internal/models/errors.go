package models

import "errors"

// Errores de dominio; los handlers los traducen a códigos HTTP con errors.Is
var (
	ErrUnauthenticated = errors.New("usuario no autenticado")
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidArgument = errors.New("argumento inválido")
)
