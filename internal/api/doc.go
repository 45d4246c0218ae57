// Package api exposes the recipe service over HTTP with a chi router.
//
// Routes live under /api/user and /api/recipe. Everything under
// /api/recipe and /api/user/me requires a token issued by /api/user/token,
// sent as "Authorization: Bearer <token>". Records owned by other users
// answer 404.
package api
