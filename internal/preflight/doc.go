// Package preflight provides readiness checks for the external tools and
// filesystem paths the pipeline depends on: conversion binaries, directory
// permissions, staging disk space, and model API key presence.
package preflight
