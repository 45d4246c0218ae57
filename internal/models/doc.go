// Package models defines the core domain models for the recipe API.
//
// # Models
//
//   - User: registered account, identified by a normalized email address
//   - Recipe: owned by exactly one user, references tags and ingredients
//   - Tag, Ingredient: per-user labels attached to recipes
//
// # Design Principles
//
// 1. **Explicit ownership**: every catalog record carries the owning UserID and
//    every store call receives the owner explicitly
// 2. **Joins are their own records**: recipe↔tag and recipe↔ingredient links live
//    in join tables owned by neither side
// 3. **Avoid circular references**: use IDs instead of pointers for relationships
package models
