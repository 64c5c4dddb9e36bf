package main

import (
	"fmt"
	"io"

	"fleetwatch/internal/service"
)

// terminalNotifier muestra el aviso de fallo de autenticacion al usuario.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) NotifyAuthFailure(err *service.AuthError) {
	fmt.Fprintln(n.out, authFailureMessage(err))
}

func authFailureMessage(err *service.AuthError) string {
	switch err.Kind {
	case service.AuthNetwork:
		return "No se pudo contactar al servicio de flota. Revisa la conexion e intenta de nuevo."
	case service.AuthStorage:
		return "La sesion se obtuvo pero no se pudo guardar localmente."
	}
	if err.Op == "register" {
		if err.Status == 0 {
			return "Datos de registro invalidos. Revisa usuario, email, nombre y apellido."
		}
		return fmt.Sprintf("El registro fue rechazado (status %d).", err.Status)
	}
	return "Usuario o password incorrectos."
}
