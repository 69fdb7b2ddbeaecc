// Package ux persists the widget's user-experience preferences.
//
// The only persisted state is whether the user has completed onboarding
// (the explainer screen). It is read once at startup and written once on the
// first continue; everything else about a session is ephemeral.
package ux
