package apperr

// Client-facing error messages.
const (
	MsgUsernameInUse      = "El nombre de usuario ya está en uso"
	MsgEmailInUse         = "El email ya está en uso"
	MsgInvalidCredentials = "Credenciales inválidas"
	MsgUserNotFound       = "Usuario no encontrado"
	MsgOldPasswordInvalid = "La contraseña actual es incorrecta."

	MsgTokenRequired       = "Acceso denegado. No se proveyó token."
	MsgTokenInvalidFormat  = "Formato de token inválido."
	MsgTokenInvalidExpired = "Token inválido o expirado."
	MsgTokenPayloadInvalid = "Formato de payload de token inválido."

	MsgInvalidInput    = "Datos de entrada inválidos"
	MsgInternal        = "Error interno del servidor."
	MsgNotFound        = "Recurso no encontrado."
	MsgConflict        = "El recurso ya existe."
	MsgBadRequest      = "Petición inválida."
	MsgUnauthorized    = "No autorizado."
	MsgTooManyRequests = "Demasiadas peticiones desde esta IP, por favor intente de nuevo después de un minuto."

	MsgFavoriteExists    = "Este Pokémon ya está en tus favoritos."
	MsgFavoriteNotFound  = "Este Pokémon no se encontró en tus favoritos."
	MsgFavoriteForbidden = "No tienes permiso para eliminar este favorito."

	MsgHistoryNotFound  = "Entrada de historial no encontrada."
	MsgHistoryForbidden = "No tienes permiso para eliminar esta entrada."

	MsgListNotFound     = "Lista no encontrada."
	MsgListForbidden    = "No tienes permiso para modificar o ver esta lista."
	MsgPokemonInList    = "El Pokémon ya existe en esta lista."
	MsgPokemonNotInList = "El Pokémon no se encontró en esta lista."

	MsgUsernameRequired     = "El nombre de usuario es requerido."
	MsgUsernameMinLength    = "El nombre de usuario debe tener al menos 3 caracteres."
	MsgEmailInvalid         = "Debe ser un email válido."
	MsgPasswordRequired     = "La contraseña es requerida."
	MsgPasswordMinLength    = "La contraseña debe tener al menos 6 caracteres."
	MsgOldPasswordRequired  = "La contraseña actual es requerida."
	MsgNewPasswordRequired  = "La nueva contraseña es requerida."
	MsgNewPasswordMinLength = "La nueva contraseña debe tener al menos 6 caracteres."
	MsgPokemonIDRequired    = "El pokemonId es requerido y debe ser un número."
	MsgSearchTermRequired   = `El "searchTerm" es requerido y debe ser un string.`
	MsgListNameRequired     = "El nombre de la lista es requerido."
	MsgListIDRequired       = "El listId es requerido y debe ser un número."
)
