// Package domain models the French IRVE charging-station dataset.
//
// # Data Source
//
// IRVE (Infrastructures de Recharge pour Véhicules Électriques) records come
// from the consolidated open dataset published on data.gouv.fr. The file is a
// plain CSV whose column names have drifted across schema revisions, so the
// normalizer maps a list of known aliases onto a fixed canonical schema
// instead of trusting the header verbatim.
//
// # Department Derivation
//
// The dashboard filters by French department, a two-character administrative
// code ("75" Paris, "2A"/"2B" Corsica) that grows to three characters for the
// overseas departments ("971" Guadeloupe, "972" Martinique, ...). The dataset
// does not carry the department directly; it is derived per row:
//
//  1. From the INSEE commune code when present: the code's leading two
//     characters identify the department, except codes starting with "97"
//     which need three, and the Corsican "2A"/"2B" prefixes which pass
//     through verbatim.
//  2. Otherwise from the free-text station address: the leftmost contiguous
//     5-digit run is taken as a postal code and the same prefix rules apply.
//  3. Otherwise the department is the empty string. The row is kept — a
//     dashboard prefers partial data over a hard failure — but it will never
//     match a department filter.
//
// Derivation is a pure per-row function; malformed values degrade to the
// empty string rather than erroring.
//
// # Operators
//
// Operator names are free text and occasionally missing. Missing names are
// replaced with the conventional "Opérateur inconnu" label carried over from
// the upstream dataset so aggregation buckets stay stable.
package domain
