// Package routes defines HTTP route constants for the application.
package routes

const (
	RootPath   = "/"
	HealthPath = "/healthz"

	// Auth
	AuthSignIn  = "/api/auth/signin"
	AuthSignOut = "/api/auth/signout"
	AuthMe      = "/api/auth/me"

	// Blogs
	APIDashboard     = "/api/dashboard"
	APIBlogs         = "/api/blogs"
	APIBlogSaveDraft = "/api/blogs/save-draft"
	APIBlog          = "/api/blogs/{id}"

	// Editor sessions
	EditorSessions       = "/api/editor/sessions"
	EditorSession        = "/api/editor/sessions/{id}"
	EditorSessionChanges = "/api/editor/sessions/{id}/changes"
	EditorSessionSave    = "/api/editor/sessions/{id}/save"
	EditorSessionPublish = "/api/editor/sessions/{id}/publish"
	EditorSessionEvents  = "/api/editor/sessions/{id}/events"
)
