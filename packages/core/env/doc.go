// Package env loads named variable sets for restcheck runs.
//
// Environment files (restcheck.env.yaml) map environment names to
// variables; the selected set becomes the base scope beneath every
// template file's own variables. OS environment variables with the
// RESTCHECK_VAR_ prefix can be merged in as well.
package env
