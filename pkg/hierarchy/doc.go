// Package hierarchy models declared classes and computes their C3 method
// resolution orders.
//
// # Overview
//
// A [Registry] is populated once from an ordered list of [Declaration]s. Each
// declaration names a class, its module, its direct bases in declared order
// and the methods it declares. Base references are resolved when the registry
// is populated; every chain of bases ends at a single root class (object by
// default).
//
//	reg := hierarchy.New()
//	err := reg.Populate([]hierarchy.Declaration{
//	    {Module: "shapes", Name: "Shape", Methods: []string{"area"}},
//	    {Module: "shapes", Name: "Square", Bases: []string{"Shape"}},
//	})
//	chains, err := reg.BuildDerivedViews()
//
// # Base Resolution
//
// A base written "pkg.models.Base" is looked up by exact qualified name
// first, then by module suffix ("models.Base" matches a module "pkg.models").
// A bare name resolves to the class of that name in the declaring module, then
// to the root, then to the unique class of that name anywhere in the
// registry. Anything else leaves the class with an UNRESOLVED_BASE failure.
//
// # Failures
//
// Failures are per class. A class whose bases cannot be resolved, that sits
// on an inheritance cycle, or whose bases cannot be merged consistently is
// marked errored; classes deriving from it fail with an error that wraps the
// original and keeps its code. All other classes are unaffected and
// [Registry.Failures] lists what went wrong.
//
// # Linearization
//
// [Registry.MRO] computes linearizations lazily with a memoized depth-first
// walk and caches them on the descriptor. [Registry.LinearizeAll] does the
// same for every class; [Registry.LinearizeAllParallel] produces identical
// results by merging independent classes concurrently, one inheritance depth
// at a time.
//
// # Derived Views
//
// [BuildChains] maps classes to their MRO names and [Registry.Trace] lists
// the ancestors that declare a method. Both are pure reads of cached MROs.
package hierarchy
