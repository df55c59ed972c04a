// Package secret resolves environment references and secret references in
// configuration values before they are merged into the effective config.
//
// Two forms are recognized inside string values:
//   - ${VAR} strict environment expansion; a missing VAR is an error and $$
//     emits a literal $.
//   - secretref:<provider>:<ref>, either as the whole value or inline, for
//     example "Bearer secretref:env:REVALIDATE_TOKEN".
package secret
