// Package domain defines the core download task entity and its lifecycle.
package domain
