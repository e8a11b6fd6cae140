// Package config loads SDK configuration from the environment, with an
// optional YAML file as a base layer. Environment variables always win over
// file values; everything is read once at startup.
package config
