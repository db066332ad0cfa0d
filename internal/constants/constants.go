// Package constants holds the physical constants used by the equilibrium
// core. Values are CGS.
package constants

const (
	Boltzmann       float64 = 1.380658e-16 // [erg K^-1]
	Planck          float64 = 6.6262e-27   // [erg s]
	StefanBoltzmann float64 = 5.6696e-5    // [erg cm^-2 s^-1 K^-4]
	ElectronMass    float64 = 9.10956e-28  // [g]
	ProtonMass      float64 = 1.672661e-24 // [g]
	EV2Ergs         float64 = 1.602192e-12 // [erg / eV]
	Pi              float64 = 3.141592653589793
)

// Rho2NH converts mass density to hydrogen number density assuming cosmic
// abundances (90% H, 10% He by number).
const Rho2NH float64 = 1. / (1.4 * ProtonMass) // [g^-1]

// TRad is the conversion factor between the mean photon frequency of a
// blackbody and its temperature: t_r = Planck * nu_mean / (TRad * Boltzmann).
const TRad float64 = 3.832
