// Package tandem provides a small process engine: processes whose
// behavior is a control graph of guarded, labeled transitions, and
// compositions of such processes under interleaving semantics.
//
// The core code is in package 'core', expression interpreters are in
// 'interpreters', and some command-line tools are in `cmd`.
package tandem
