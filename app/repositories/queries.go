package repositories

// GROQ queries issued against the content store.
const (
	listPostsQuery = `*[_type == "post"]{
  _id,
  _createdAt,
  _updatedAt,
  title,
  description,
  slug,
  mainImage,
  author -> {
    name,
    image
  }
}`

	postBySlugQuery = `*[_type == "post" && slug.current == $slug][0]{
  _id,
  _createdAt,
  _updatedAt,
  title,
  description,
  slug,
  mainImage,
  author -> {
    name,
    image
  },
  body,
  'comments': *[
    _type == 'comment' &&
    post._ref == ^._id &&
    approved == true
  ]
}`

	postSlugsQuery = `*[_type == "post"]{
  _id,
  slug {
    current
  }
}`
)
