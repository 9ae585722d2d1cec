package config

// Prompt guidance blocks appended to round prompts. The section headers are
// load-bearing: the parser splits responses on them, the SHOWDOWN merge reads
// FINAL_POSITION and IMPLEMENTATION, and the scorer's evidence blend reads
// the EVIDENCE line, so changes here must be mirrored there.

// ConfidenceGuidance explains how participants should calibrate the
// CONFIDENCE value relative to the rest of the group.
const ConfidenceGuidance = `Confidence Guidelines (0.0-1.0):
- Base your confidence on agreement with other participants
- Consider how close your position is to others
- Account for shared evidence and reasoning
- Confidence should reflect likelihood of consensus

Your confidence score impacts consensus:
- Higher scores (>0.8) require strong alignment with others
- Medium scores (0.5-0.7) show potential for consensus
- Lower scores (<0.5) indicate significant differences`

// CodeConsensusGuidance is appended when the transcript contains fenced code
// blocks, pushing participants toward structurally comparable solutions.
const CodeConsensusGuidance = `For code solutions:
1. Match structure and organization
2. Use identical:
   - Variable names
   - Function signatures
   - Error handling
   - Comment style
3. Produce same output format
4. Follow same patterns`

const preFlopFormat = `Format your response:
UNDERSTANDING: [Problem interpretation]
CONSTRAINTS: [Key limitations]
INITIAL_POSITION: [Starting stance]
CONFIDENCE: [0.0-1.0 score + why]`

const flopFormat = `Review the other participants' initial responses, then respond:

AGREEMENTS: [Points you share with others]
DIFFERENCES: [Where your position diverges and why]
EVIDENCE: [Sources, citations or data supporting your position, comma separated]
POSITION: [Your current solution]
CONFIDENCE: [0.0-1.0 with explanation]`

const turnFormat = `Weigh the evidence presented so far, then respond:

EVIDENCE_ANALYSIS: [Assessment of the strongest evidence raised by the group]
POSITION_UPDATE: [Your refined solution, adapted toward common structure]
COMPROMISE_AREAS: [Where you are willing to move]
CONFIDENCE: [0.0-1.0 with explanation]`

const riverFormat = `Work toward a single shared answer:

SYNTHESIS: [Combined view of the group's positions]
RESOLUTION: [The answer you believe the group should converge on]
REMAINING_ISSUES: [Anything still blocking agreement]
CONFIDENCE: [0.0-1.0 with explanation of both solution and agreement confidence]`

const showdownFormat = `Provide ONLY the final solution to the original prompt.
No meta-discussion, no explanations outside the sections below.

FINAL_POSITION: [Your definitive answer]
IMPLEMENTATION: [Concrete form of the answer, code if applicable]
CONFIDENCE: [0.0-1.0 float only]
DISSENTING_VIEWS: [Any reservations, or "none"]`
