// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

// curatedGenre pairs a book genre with its canonical "title author"
// search queries. The catalog's own subject classification is too noisy
// for slate-quality results, so the book pipeline drives the search API
// with these hand-picked anchors instead.
type curatedGenre struct {
	Name    string
	Queries []string
}

// curatedBookGenres is the compile-time curated mapping, in slate order.
// Preferred genres are moved to the front at run time; the relative
// order here is the tie-break.
var curatedBookGenres = []curatedGenre{
	{
		Name: "Fantasy",
		Queries: []string{
			"The Name of the Wind Patrick Rothfuss",
			"Mistborn Brandon Sanderson",
			"The Fifth Season N.K. Jemisin",
			"The Lies of Locke Lamora Scott Lynch",
			"Jonathan Strange and Mr Norrell Susanna Clarke",
		},
	},
	{
		Name: "Science Fiction",
		Queries: []string{
			"Project Hail Mary Andy Weir",
			"Hyperion Dan Simmons",
			"The Left Hand of Darkness Ursula K. Le Guin",
			"Children of Time Adrian Tchaikovsky",
			"A Fire Upon the Deep Vernor Vinge",
		},
	},
	{
		Name: "Mystery",
		Queries: []string{
			"The Thursday Murder Club Richard Osman",
			"Gone Girl Gillian Flynn",
			"In the Woods Tana French",
			"Magpie Murders Anthony Horowitz",
			"The No. 1 Ladies' Detective Agency Alexander McCall Smith",
		},
	},
	{
		Name: "Thriller",
		Queries: []string{
			"The Silent Patient Alex Michaelides",
			"I Am Pilgrim Terry Hayes",
			"The Girl with the Dragon Tattoo Stieg Larsson",
			"Before I Go to Sleep S.J. Watson",
			"The Day of the Jackal Frederick Forsyth",
		},
	},
	{
		Name: "Horror",
		Queries: []string{
			"The Shining Stephen King",
			"House of Leaves Mark Z. Danielewski",
			"Mexican Gothic Silvia Moreno-Garcia",
			"Bird Box Josh Malerman",
			"The Haunting of Hill House Shirley Jackson",
		},
	},
	{
		Name: "Romance",
		Queries: []string{
			"Beach Read Emily Henry",
			"The Hating Game Sally Thorne",
			"Red White and Royal Blue Casey McQuiston",
			"Outlander Diana Gabaldon",
			"Pride and Prejudice Jane Austen",
		},
	},
	{
		Name: "Historical Fiction",
		Queries: []string{
			"Wolf Hall Hilary Mantel",
			"All the Light We Cannot See Anthony Doerr",
			"The Pillars of the Earth Ken Follett",
			"Pachinko Min Jin Lee",
			"The Nightingale Kristin Hannah",
		},
	},
	{
		Name: "Literary Fiction",
		Queries: []string{
			"A Little Life Hanya Yanagihara",
			"Never Let Me Go Kazuo Ishiguro",
			"The Goldfinch Donna Tartt",
			"Middlesex Jeffrey Eugenides",
			"Normal People Sally Rooney",
		},
	},
	{
		Name: "Crime",
		Queries: []string{
			"The Big Sleep Raymond Chandler",
			"Mystic River Dennis Lehane",
			"The Snowman Jo Nesbo",
			"L.A. Confidential James Ellroy",
			"The Talented Mr. Ripley Patricia Highsmith",
		},
	},
	{
		Name: "Adventure",
		Queries: []string{
			"The Count of Monte Cristo Alexandre Dumas",
			"Into Thin Air Jon Krakauer",
			"The Martian Andy Weir",
			"Treasure Island Robert Louis Stevenson",
			"The Lost City of Z David Grann",
		},
	},
	{
		Name: "Biography",
		Queries: []string{
			"The Wright Brothers David McCullough",
			"Steve Jobs Walter Isaacson",
			"Alexander Hamilton Ron Chernow",
			"Educated Tara Westover",
			"Born a Crime Trevor Noah",
		},
	},
	{
		Name: "History",
		Queries: []string{
			"Sapiens Yuval Noah Harari",
			"The Guns of August Barbara Tuchman",
			"SPQR Mary Beard",
			"A Short History of Nearly Everything Bill Bryson",
			"The Silk Roads Peter Frankopan",
		},
	},
	{
		Name: "Science",
		Queries: []string{
			"A Brief History of Time Stephen Hawking",
			"The Gene Siddhartha Mukherjee",
			"The Selfish Gene Richard Dawkins",
			"Entangled Life Merlin Sheldrake",
			"The Immortal Life of Henrietta Lacks Rebecca Skloot",
		},
	},
	{
		Name: "Self-Help",
		Queries: []string{
			"Atomic Habits James Clear",
			"Deep Work Cal Newport",
			"Thinking Fast and Slow Daniel Kahneman",
			"The Power of Habit Charles Duhigg",
			"Mindset Carol Dweck",
		},
	},
	{
		Name: "Classics",
		Queries: []string{
			"One Hundred Years of Solitude Gabriel Garcia Marquez",
			"Crime and Punishment Fyodor Dostoevsky",
			"To Kill a Mockingbird Harper Lee",
			"The Great Gatsby F. Scott Fitzgerald",
			"Jane Eyre Charlotte Bronte",
		},
	},
}
