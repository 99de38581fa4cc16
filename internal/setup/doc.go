// SPDX-License-Identifier: MPL-2.0

// Package setup turns the packages of a Windows Terminal bundle into Inno
// Setup installers.
//
// The pipeline for one bundle is:
//
//	Orchestrator.Process
//	  base Context (product, version, license)
//	  for each package in the bundle:
//	    Generator.Generate
//	      extract to a temporary directory
//	      Manifest of the extracted files
//	      package Context derived from the base
//	      Template.Render
//	      Compiler.Compile on a temporary .iss file
//
// Each package gets its own Context copied from the base, so no key set for
// one package is visible while another is rendered.
package setup
