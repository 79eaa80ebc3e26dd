package content

import "math/rand"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// WordPack is one category of secret words, split by difficulty.
type WordPack struct {
	ID    string                  `json:"id"`
	Emoji string                  `json:"emoji"`
	Words map[Difficulty][]string `json:"words"`
}

var packsES = []WordPack{
	{
		ID: "animals", Emoji: "🐾",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"perro", "gato", "vaca", "caballo", "cerdo", "gallina", "pato", "oso", "león", "tigre"},
			DifficultyMedium: {"delfín", "canguro", "jirafa", "cocodrilo", "pingüino", "flamenco", "mapache", "zorro", "lobo", "búho"},
			DifficultyHard:   {"ornitorrinco", "axolote", "platipus", "tapir", "ñu", "okapi", "quokka", "narval", "dugongo", "aardvark"},
		},
	},
	{
		ID: "food", Emoji: "🍽️",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"pizza", "taco", "sopa", "arroz", "pan", "leche", "queso", "huevo", "pollo", "pasta"},
			DifficultyMedium: {"enchilada", "paella", "ceviche", "guacamole", "tamale", "empanada", "gazpacho", "mole", "churro", "arepa"},
			DifficultyHard:   {"escargot", "foie gras", "trufa", "caviar", "kimchi", "tempura", "prosciutto", "tiramisu", "bouillabaisse", "bacalao"},
		},
	},
	{
		ID: "countries", Emoji: "🌍",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"México", "España", "Francia", "Brasil", "Japón", "China", "Italia", "Alemania", "Rusia", "Argentina"},
			DifficultyMedium: {"Colombia", "Turquía", "Marruecos", "Vietnam", "Sudáfrica", "Polonia", "Suecia", "Tailandia", "Portugal", "Chile"},
			DifficultyHard:   {"Bielorrusia", "Kazajistán", "Mozambique", "Azerbaijan", "Uzbekistán", "Kirguistán", "Mauritania", "Botsuana", "Eritrea", "Vanuatu"},
		},
	},
	{
		ID: "movies", Emoji: "🎬",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"Titanic", "Avatar", "Joker", "Coco", "Up", "Toy Story", "Aladín", "Frozen", "Moana", "Grease"},
			DifficultyMedium: {"Inception", "Parasite", "Gladiator", "Matrix", "Interstellar", "Braveheart", "Whiplash", "Spotlight", "Birdman", "Moonlight"},
			DifficultyHard:   {"Mulholland Drive", "Stalker", "Nostalghia", "Sátántangó", "Jeanne Dielman", "Werckmeister Harmonies", "Au Hasard Balthazar", "La Dolce Vita", "Solaris", "Teorema"},
		},
	},
	{
		ID: "professions", Emoji: "👔",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"maestro", "médico", "chef", "piloto", "policía", "bombero", "dentista", "abogado", "actor", "cantante"},
			DifficultyMedium: {"cirujano", "arqueólogo", "astrónomo", "psicólogo", "ingeniero", "diplomático", "periodista", "veterinario", "fisioterapeuta", "economista"},
			DifficultyHard:   {"hepatólogo", "actuario", "numismático", "glaciólogo", "paleontólogo", "ornitólogo", "toxicólogo", "endocrinólogo", "geomorfólogo", "lepidopterólogo"},
		},
	},
	{
		ID: "sports", Emoji: "⚽",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"fútbol", "tenis", "boxeo", "natación", "golf", "béisbol", "baloncesto", "ciclismo", "atletismo", "vóleibol"},
			DifficultyMedium: {"esgrima", "remo", "triatlón", "balonmano", "waterpolo", "lucha libre", "judo", "taekwondo", "tiro con arco", "skeleton"},
			DifficultyHard:   {"sepaktakraw", "kabaddi", "hurling", "pelota vasca", "pato", "calcio storico", "bossaball", "polocrosse", "kronum", "shorinji kempo"},
		},
	},
	{
		ID: "objects", Emoji: "📦",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"silla", "mesa", "cama", "puerta", "ventana", "teléfono", "reloj", "espejo", "lámpara", "bolígrafo"},
			DifficultyMedium: {"telescopio", "caleidoscopio", "metrónomo", "sextante", "compás", "ábaco", "catalejo", "periscópio", "termostato", "sincrotón"},
			DifficultyHard:   {"astrolabio", "baróscopo", "cronógrafo", "interferómetro", "espectrógrafo", "galvanómetro", "clinómetro", "refractómetro", "radiogoniómetro", "fluxómetro"},
		},
	},
}

var packsEN = []WordPack{
	{
		ID: "animals", Emoji: "🐾",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"dog", "cat", "cow", "horse", "pig", "chicken", "duck", "bear", "lion", "tiger"},
			DifficultyMedium: {"dolphin", "kangaroo", "giraffe", "crocodile", "penguin", "flamingo", "raccoon", "fox", "wolf", "owl"},
			DifficultyHard:   {"platypus", "axolotl", "tapir", "wildebeest", "okapi", "quokka", "narwhal", "dugong", "aardvark", "pangolin"},
		},
	},
	{
		ID: "food", Emoji: "🍽️",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"pizza", "taco", "soup", "rice", "bread", "milk", "cheese", "egg", "chicken", "pasta"},
			DifficultyMedium: {"enchilada", "paella", "ceviche", "guacamole", "empanada", "gazpacho", "ratatouille", "moussaka", "baklava", "jerk chicken"},
			DifficultyHard:   {"escargot", "foie gras", "truffle", "caviar", "kimchi", "tempura", "prosciutto", "tiramisu", "bouillabaisse", "haggis"},
		},
	},
	{
		ID: "countries", Emoji: "🌍",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"Mexico", "Spain", "France", "Brazil", "Japan", "China", "Italy", "Germany", "Russia", "Argentina"},
			DifficultyMedium: {"Colombia", "Turkey", "Morocco", "Vietnam", "South Africa", "Poland", "Sweden", "Thailand", "Portugal", "Chile"},
			DifficultyHard:   {"Belarus", "Kazakhstan", "Mozambique", "Azerbaijan", "Uzbekistan", "Kyrgyzstan", "Mauritania", "Botswana", "Eritrea", "Vanuatu"},
		},
	},
	{
		ID: "movies", Emoji: "🎬",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"Titanic", "Avatar", "Joker", "Coco", "Up", "Toy Story", "Aladdin", "Frozen", "Moana", "Grease"},
			DifficultyMedium: {"Inception", "Parasite", "Gladiator", "The Matrix", "Interstellar", "Braveheart", "Whiplash", "Spotlight", "Birdman", "Moonlight"},
			DifficultyHard:   {"Mulholland Drive", "Stalker", "Nostalghia", "Sátántangó", "Jeanne Dielman", "Werckmeister Harmonies", "Au Hasard Balthazar", "La Dolce Vita", "Solaris", "Teorema"},
		},
	},
	{
		ID: "professions", Emoji: "👔",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"teacher", "doctor", "chef", "pilot", "police", "firefighter", "dentist", "lawyer", "actor", "singer"},
			DifficultyMedium: {"surgeon", "archaeologist", "astronomer", "psychologist", "engineer", "diplomat", "journalist", "veterinarian", "physiotherapist", "economist"},
			DifficultyHard:   {"hepatologist", "actuary", "numismatist", "glaciologist", "paleontologist", "ornithologist", "toxicologist", "endocrinologist", "geomorphologist", "lepidopterologist"},
		},
	},
	{
		ID: "sports", Emoji: "⚽",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"soccer", "tennis", "boxing", "swimming", "golf", "baseball", "basketball", "cycling", "track", "volleyball"},
			DifficultyMedium: {"fencing", "rowing", "triathlon", "handball", "water polo", "wrestling", "judo", "taekwondo", "archery", "skeleton"},
			DifficultyHard:   {"sepaktakraw", "kabaddi", "hurling", "jai alai", "pato", "calcio storico", "bossaball", "polocrosse", "kronum", "tchoukball"},
		},
	},
	{
		ID: "objects", Emoji: "📦",
		Words: map[Difficulty][]string{
			DifficultyEasy:   {"chair", "table", "bed", "door", "window", "phone", "clock", "mirror", "lamp", "pen"},
			DifficultyMedium: {"telescope", "kaleidoscope", "metronome", "sextant", "compass", "abacus", "periscope", "thermostat", "barometer", "gyroscope"},
			DifficultyHard:   {"astrolabe", "chronograph", "interferometer", "spectrograph", "galvanometer", "clinometer", "refractometer", "radiogoniometer", "fluxometer", "synchrotron"},
		},
	},
}

// Packs returns all word packs for a language. Unknown languages fall back to
// Spanish, the game's default.
func Packs(lang string) []WordPack {
	if lang == "en" {
		return packsEN
	}
	return packsES
}

// RandomWord picks a random word from the given pack and difficulty.
// The second return is false when the pack or difficulty has no words.
func RandomWord(lang, packID string, difficulty Difficulty) (string, bool) {
	for _, p := range Packs(lang) {
		if p.ID != packID {
			continue
		}
		words := p.Words[difficulty]
		if len(words) == 0 {
			return "", false
		}
		return words[rand.Intn(len(words))], true
	}
	return "", false
}
