// Package models defines persistent entities and the repository interface for oauthcap.
//
// [CallbackRecord] is the audit entry written for every captured OAuth redirect. It keeps
// which provider redirected, on which port, whether a code and state were present, and any
// error the provider reported. Authorization codes and state values are never part of it.
//
// All persistent entities implement [Model] providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
