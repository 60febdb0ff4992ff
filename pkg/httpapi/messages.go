package httpapi

const (
	msgAlive = "¡El backend está funcionando!"

	msgRegistered      = "Usuario registrado exitosamente"
	msgLoggedIn        = "Login exitoso"
	msgProfileFetched  = "Perfil de usuario obtenido exitosamente."
	msgPasswordChanged = "Contraseña actualizada exitosamente."

	msgFavoriteAdded    = "Pokémon añadido a favoritos."
	msgFavoriteRemoved  = "Pokémon eliminado de favoritos."
	msgFavoritesFetched = "Lista de Favoritos obtenida exitosamente."

	msgHistoryFetched = "Historial de búsqueda obtenido exitosamente."
	msgHistoryAdded   = "Término de búsqueda guardado."
	msgHistoryRemoved = "Término de búsqueda eliminado."

	msgListCreated        = "Lista creada exitosamente."
	msgListUpdated        = "Lista actualizada exitosamente."
	msgListDeleted        = "Lista eliminada exitosamente."
	msgListsFetched       = "Listas obtenidas exitosamente."
	msgListDetailsFetched = "Detalles de la lista obtenidos exitosamente."
	msgPokemonAdded       = "Pokémon añadido a la lista."
	msgPokemonRemoved     = "Pokémon eliminado de la lista."

	msgFavoriteIDInvalid = "El ID del favorito debe ser un número válido."
	msgHistoryIDInvalid  = "El ID de la entrada debe ser un número válido."
	msgPokemonIDInvalid  = "El ID del Pokémon debe ser un número."
)
