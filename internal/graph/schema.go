package graph

// Schema is the GraphQL schema definition. It is fixed and not
// versioned; the resolver graph is validated against it at startup.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
		subscription: Subscription
	}

	type Query {
		hello: String!
		bookCount: Int!
		authorCount: Int!
		allBooks(author: String, genre: String): [Book!]!
		allAuthors: [Author!]!
		searchBooks(query: String!): [Book!]!
		me: User
	}

	type Mutation {
		addBook(title: String!, authorName: String!, published: Int, genres: [String!]): Book
		editAuthor(name: String!, setBornTo: Int!): Author
		createUser(username: String!, favoriteGenre: String!): User!
		login(username: String!, password: String!): Token
	}

	type Subscription {
		bookAdded: Book!
	}

	type Book {
		id: ID!
		title: String!
		published: Int
		author: Author!
		genres: [String!]!
	}

	type Author {
		id: ID!
		name: String!
		born: Int
		bookCount: Int!
	}

	type User {
		id: ID!
		username: String!
		favoriteGenre: String!
	}

	type Token {
		value: String!
	}
`
