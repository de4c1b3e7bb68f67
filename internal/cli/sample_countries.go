package cli

import "floria-quiz-service/internal/domain"

// sampleCountries backs the static entity source used when no HTTP API or database is configured.
func sampleCountries() []domain.Entity {
	return []domain.Entity{
		{ID: 1, Name: "Belgium", Continent: "Europe", MediaRef: "https://flagcdn.com/be.svg", FavoriteCode: "BE", Capital: "Brussels", Population: 11700000, Currency: "EUR"},
		{ID: 2, Name: "Netherlands", Continent: "Europe", MediaRef: "https://flagcdn.com/nl.svg", FavoriteCode: "NL", Capital: "Amsterdam", Population: 17900000, Currency: "EUR"},
		{ID: 3, Name: "France", Continent: "Europe", MediaRef: "https://flagcdn.com/fr.svg", FavoriteCode: "FR", Capital: "Paris", Population: 68000000, Currency: "EUR"},
		{ID: 4, Name: "Germany", Continent: "Europe", MediaRef: "https://flagcdn.com/de.svg", FavoriteCode: "DE", Capital: "Berlin", Population: 84000000, Currency: "EUR"},
		{ID: 5, Name: "Italy", Continent: "Europe", MediaRef: "https://flagcdn.com/it.svg", FavoriteCode: "IT", Capital: "Rome", Population: 58900000, Currency: "EUR"},
		{ID: 6, Name: "Spain", Continent: "Europe", MediaRef: "https://flagcdn.com/es.svg", FavoriteCode: "ES", Capital: "Madrid", Population: 48300000, Currency: "EUR"},
		{ID: 7, Name: "Portugal", Continent: "Europe", MediaRef: "https://flagcdn.com/pt.svg", FavoriteCode: "PT", Capital: "Lisbon", Population: 10400000, Currency: "EUR"},
		{ID: 8, Name: "Sweden", Continent: "Europe", MediaRef: "https://flagcdn.com/se.svg", FavoriteCode: "SE", Capital: "Stockholm", Population: 10500000, Currency: "SEK"},
		{ID: 9, Name: "Japan", Continent: "Asia", MediaRef: "https://flagcdn.com/jp.svg", FavoriteCode: "JP", Capital: "Tokyo", Population: 124500000, Currency: "JPY"},
		{ID: 10, Name: "South Korea", Continent: "Asia", MediaRef: "https://flagcdn.com/kr.svg", FavoriteCode: "KR", Capital: "Seoul", Population: 51700000, Currency: "KRW"},
		{ID: 11, Name: "India", Continent: "Asia", MediaRef: "https://flagcdn.com/in.svg", FavoriteCode: "IN", Capital: "New Delhi", Population: 1428000000, Currency: "INR"},
		{ID: 12, Name: "Brazil", Continent: "South America", MediaRef: "https://flagcdn.com/br.svg", FavoriteCode: "BR", Capital: "Brasilia", Population: 216400000, Currency: "BRL"},
		{ID: 13, Name: "Argentina", Continent: "South America", MediaRef: "https://flagcdn.com/ar.svg", FavoriteCode: "AR", Capital: "Buenos Aires", Population: 46600000, Currency: "ARS"},
		{ID: 14, Name: "Canada", Continent: "North America", MediaRef: "https://flagcdn.com/ca.svg", FavoriteCode: "CA", Capital: "Ottawa", Population: 40100000, Currency: "CAD"},
		{ID: 15, Name: "Mexico", Continent: "North America", MediaRef: "https://flagcdn.com/mx.svg", FavoriteCode: "MX", Capital: "Mexico City", Population: 128500000, Currency: "MXN"},
		{ID: 16, Name: "Kenya", Continent: "Africa", MediaRef: "https://flagcdn.com/ke.svg", FavoriteCode: "KE", Capital: "Nairobi", Population: 55100000, Currency: "KES"},
		{ID: 17, Name: "Morocco", Continent: "Africa", MediaRef: "https://flagcdn.com/ma.svg", FavoriteCode: "MA", Capital: "Rabat", Population: 37800000, Currency: "MAD"},
		{ID: 18, Name: "Australia", Continent: "Oceania", MediaRef: "https://flagcdn.com/au.svg", FavoriteCode: "AU", Capital: "Canberra", Population: 26600000, Currency: "AUD"},
	}
}
